// internal/valuation/validation/makes.go
package validation

import "strings"

var knownMakes = func() map[string]struct{} {
	names := []string{
		"Acura", "Alfa Romeo", "Aston Martin", "Audi", "Bentley", "BMW", "Buick",
		"Cadillac", "Chevrolet", "Chrysler", "Dodge", "Ferrari", "Fiat", "Ford",
		"Genesis", "GMC", "Honda", "Hummer", "Hyundai", "Infiniti", "Isuzu",
		"Jaguar", "Jeep", "Kia", "Lamborghini", "Land Rover", "Lexus", "Lincoln",
		"Lotus", "Lucid", "Maserati", "Mazda", "McLaren", "Mercedes-Benz",
		"Mercedes", "Mercury", "Mini", "Mitsubishi", "Nissan", "Oldsmobile",
		"Polestar", "Pontiac", "Porsche", "Ram", "Rivian", "Rolls-Royce", "Saab",
		"Saturn", "Scion", "Smart", "Subaru", "Suzuki", "Tesla", "Toyota",
		"Volkswagen", "VW", "Volvo",
	}
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[strings.ToLower(n)] = struct{}{}
	}
	return m
}()

func isKnownMake(name string) bool {
	_, ok := knownMakes[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

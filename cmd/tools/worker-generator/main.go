// cmd/tools/worker-generator/main.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"valuation-workers/pkg/registry"
)

const modulePath = "valuation-workers"

// WorkerData holds data for templates
type WorkerData struct {
	Module      string
	PackageName string
	TaskType    string
	Description string
	Category    string
	Timeout     string
	Fields      []Field
}

type Field struct {
	Name     string
	Type     string
	JSONName string
	Required bool
}

// Tag renders the struct tag for the field.
func (f Field) Tag() string {
	tag := fmt.Sprintf("json:\"%s", f.JSONName)
	if !f.Required {
		tag += ",omitempty"
	}
	tag += "\""
	if f.Required {
		tag += " validate:\"required\""
	}
	return "`" + tag + "`"
}

// fieldsFromSchema lists the top-level properties of an object schema in
// name order.
func fieldsFromSchema(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	required := map[string]bool{}
	switch req := schema["required"].(type) {
	case []string:
		for _, r := range req {
			required[r] = true
		}
	case []interface{}:
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		fields = append(fields, Field{
			Name:     exportedName(name),
			Type:     goTypeFromJSONType(details["type"]),
			JSONName: name,
			Required: required[name],
		})
	}
	return fields
}

// goTypeFromJSONType maps JSON schema types to Go types
func goTypeFromJSONType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// exportedName turns appraisalId into AppraisalID and list-price into ListPrice.
func exportedName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		p = strings.ToUpper(p[:1]) + p[1:]
		if strings.HasSuffix(p, "Id") {
			p = strings.TrimSuffix(p, "Id") + "ID"
		}
		b.WriteString(p)
	}
	return b.String()
}

const configTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ .Timeout }},
	}
}
`

const modelsTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .Fields }}
	{{ .Name }} {{ .Type }} {{ .Tag }}
{{- end }}
}

type Output struct {
	Result map[string]interface{} ` + "`json:\"result\"`" + `
}
`

const handlerTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/handler.go
package {{ .PackageName }}

import (
	"context"

	apperrors "{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
	"{{ .Module }}/internal/common/metrics"
	commonvalidation "{{ .Module }}/internal/common/validation"
	"{{ .Module }}/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// {{ .Description }}
const TaskType = "{{ .TaskType }}"

type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	done := metrics.TrackJob(TaskType)
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := commonvalidation.DecodeVariables(registry.InputSchema(TaskType), job.Variables, &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		done(string(apperrors.Normalize(err).Code))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		done(string(apperrors.Normalize(err).Code))
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to set output variables", map[string]interface{}{"error": err.Error()})
		h.errorHandler.HandleJobError(ctx, client, job, err)
		done(string(apperrors.Normalize(err).Code))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"error": err.Error()})
	}
	done("")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	return nil, apperrors.NewInvalidInputError(TaskType + " is not implemented")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
`

const testTemplate = `// internal/workers/{{ .Category }}/{{ .TaskType }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"
	"time"

	"{{ .Module }}/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func TestHandler_Execute(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	require.Error(t, err)
	assert.Nil(t, output)
}
`

var templates = []struct {
	file string
	body string
}{
	{"config.go", configTemplate},
	{"models.go", modelsTemplate},
	{"handler.go", handlerTemplate},
	{"handler_test.go", testTemplate},
}

func main() {
	activity := flag.String("activity", "", "Activity ID (e.g. build-market-analysis)")
	outputDir := flag.String("output", "./internal/workers/", "Root directory for generated workers")
	registryPath := flag.String("registry", "", "Registry JSON file; the built-in registry is used when empty")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator --activity <id> [--output <dir>] [--registry <path>] [--force]")
		os.Exit(1)
	}

	reg := registry.Builtin()
	if *registryPath != "" {
		loaded, err := registry.LoadRegistry(*registryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading registry %s: %v\n", *registryPath, err)
			os.Exit(1)
		}
		reg = loaded
	}

	found, ok := reg.Find(*activity)
	if !ok {
		fmt.Fprintf(os.Stderr, "activity %q not found in registry\n", *activity)
		os.Exit(1)
	}

	data := workerData(*found)
	workerDir := filepath.Join(*outputDir, data.Category, found.ID)
	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating %s: %v\n", workerDir, err)
		os.Exit(1)
	}

	for _, t := range templates {
		path := filepath.Join(workerDir, t.file)
		err := render(path, t.body, data, *force)
		switch {
		case errors.Is(err, os.ErrExist):
			fmt.Printf("skipped %s (exists, use --force)\n", path)
		case err != nil:
			fmt.Fprintf(os.Stderr, "generating %s: %v\n", path, err)
			os.Exit(1)
		default:
			fmt.Printf("generated %s\n", path)
		}
	}

	fmt.Printf("\nNext: implement execute in %s and register the handler in cmd/worker-manager/main.go\n",
		filepath.Join(workerDir, "handler.go"))
}

func workerData(a registry.Activity) WorkerData {
	return WorkerData{
		Module:      modulePath,
		PackageName: strings.ReplaceAll(a.ID, "-", ""),
		TaskType:    a.TaskType,
		Description: a.Description,
		Category:    categoryDir(a.Category),
		Timeout:     timeoutLiteral(a.Timeout),
		Fields:      fieldsFromSchema(a.InputSchema),
	}
}

func render(path, body string, data WorkerData, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return os.ErrExist
		}
	}
	tmpl, err := template.New(filepath.Base(path)).Parse(body)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

// timeoutLiteral renders a registry timeout such as "10s" as a Go duration
// expression, defaulting to ten seconds.
func timeoutLiteral(timeout string) string {
	d, err := time.ParseDuration(timeout)
	if err != nil || d <= 0 {
		d = 10 * time.Second
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d * time.Second", d/time.Second)
	}
	return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond)
}

func categoryDir(category string) string {
	switch category {
	case "data-access", "valuation":
		return category
	case "":
		return "valuation"
	default:
		return strings.ToLower(strings.ReplaceAll(category, " ", "-"))
	}
}

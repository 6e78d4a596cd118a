package project

import (
	"fmt"
	"slices"
	"strings"

	"github.com/worgue/magic-pocket/internal/document"
	"github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/pkg/secretstore"
)

// Resolve merges the overlay for stage into doc and decodes the result into a
// Config. doc is not modified.
func Resolve(doc document.Value, stage string) (*Config, error) {
	stages := declaredStages(doc)
	if !slices.Contains(stages, stage) {
		return nil, &errors.StageNotFoundError{Stage: stage, Available: stages}
	}

	merged := doc
	if overlay, ok := doc.Get(stage); ok {
		if !overlay.IsMap() {
			return nil, &errors.ParseError{
				Section:  stage,
				Problems: []string{fmt.Sprintf("stage overlay must be a table, got %s", overlay.Kind())},
			}
		}
		merged = document.Merge(doc, overlay)
	}
	merged = merged.Without(stages...)

	general, err := decodeGeneral(merged)
	if err != nil {
		return nil, err
	}

	vars := newSubstituter(stage, general.ProjectName, general.Namespace)
	cfg := &Config{
		General:        general,
		Stage:          stage,
		Slug:           stage + "-" + general.ProjectName,
		ResourcePrefix: vars.Replace(general.PrefixTemplate),
		Handlers:       map[string]HandlerSpec{},
	}

	container, ok := merged.Get("awscontainer")
	if !ok {
		return cfg, nil
	}

	if secrets, ok := container.Get("secrets"); ok {
		cfg.Secrets = decodeSecrets(secrets, cfg, vars)
	}
	if handlers, ok := container.Get("handlers"); ok {
		cfg.Handlers = decodeHandlers(handlers, cfg.ResourcePrefix)
	}
	return cfg, nil
}

// ResolveGeneral decodes only the [general] section. It is used when no stage
// is selected, so Stage, Slug and ResourcePrefix stay empty and no stage
// membership check is made.
func ResolveGeneral(doc document.Value) (*Config, error) {
	general, err := decodeGeneral(doc)
	if err != nil {
		return nil, err
	}
	return &Config{General: general, Handlers: map[string]HandlerSpec{}}, nil
}

// declaredStages returns the string entries of general.stages; anything else
// in the list is ignored.
func declaredStages(doc document.Value) []string {
	list, ok := doc.Lookup("general", "stages")
	if !ok {
		return nil
	}
	var stages []string
	for _, item := range list.Items() {
		if s, ok := item.AsString(); ok {
			stages = append(stages, s)
		}
	}
	return stages
}

func decodeGeneral(doc document.Value) (General, error) {
	section, ok := doc.Get("general")
	if !ok {
		return General{}, &errors.MissingSectionError{Section: "general"}
	}

	problems, err := validate(doc)
	if err != nil {
		return General{}, &errors.ParseError{Err: err}
	}
	if len(problems) > 0 {
		return General{}, &errors.ParseError{Problems: problems}
	}

	return General{
		Region:         stringOr(section, "region", ""),
		ProjectName:    stringOr(section, "project_name", DefaultProjectName),
		Namespace:      stringOr(section, "namespace", DefaultNamespace),
		PrefixTemplate: stringOr(section, "prefix_template", DefaultPrefixTemplate),
		Stages:         declaredStages(doc),
	}, nil
}

func decodeSecrets(section document.Value, cfg *Config, vars *strings.Replacer) *SecretsSpec {
	spec := &SecretsSpec{
		Store:       secretstore.ParseKind(stringOr(section, "store", string(DefaultStore))),
		PocketKey:   vars.Replace(stringOr(section, "pocket_key_format", DefaultPocketKeyFormat)),
		Stage:       cfg.Stage,
		ProjectName: cfg.ProjectName,
		Region:      cfg.Region,
		Managed:     map[string]ManagedSecretSpec{},
		User:        map[string]UserSecretSpec{},
	}

	managed, _ := section.Get("managed")
	for _, name := range managed.Keys() {
		entry, _ := managed.Get(name)
		ms := ManagedSecretSpec{
			Type:    stringOr(entry, "type", ""),
			Options: map[string]string{},
		}
		options, _ := entry.Get("options")
		for _, key := range options.Keys() {
			value, _ := options.Get(key)
			ms.Options[key] = value.String()
		}
		spec.Managed[name] = ms
	}

	user, _ := section.Get("user")
	for _, name := range user.Keys() {
		entry, _ := user.Get(name)
		us := UserSecretSpec{Name: stringOr(entry, "name", "")}
		if raw, ok := entry.Get("store"); ok {
			if s, ok := raw.AsString(); ok {
				kind := secretstore.ParseKind(s)
				us.Store = &kind
			}
		}
		spec.User[name] = us
	}

	return spec
}

func decodeHandlers(section document.Value, resourcePrefix string) map[string]HandlerSpec {
	handlers := make(map[string]HandlerSpec, section.Len())
	for _, key := range section.Keys() {
		entry, _ := section.Get(key)
		var h HandlerSpec

		if ag, ok := entry.Get("apigateway"); ok {
			h.APIGateway = &APIGatewaySpec{Domain: stringOr(ag, "domain", "")}
		}
		if _, ok := entry.Get("sqs"); ok {
			h.SQS = &SQSSpec{Name: resourcePrefix + key}
		}
		if raw, ok := entry.Get("timeout"); ok {
			if n, ok := raw.AsInt(); ok {
				h.Timeout = &n
			}
		}
		handlers[key] = h
	}
	return handlers
}

// newSubstituter expands {stage}, {project} and {namespace} in a single pass,
// so substituted text is never expanded again.
func newSubstituter(stage, project, namespace string) *strings.Replacer {
	return strings.NewReplacer(
		"{stage}", stage,
		"{project}", project,
		"{namespace}", namespace,
	)
}

func stringOr(v document.Value, key, fallback string) string {
	raw, ok := v.Get(key)
	if !ok {
		return fallback
	}
	if s, ok := raw.AsString(); ok {
		return s
	}
	return fallback
}

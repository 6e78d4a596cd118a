package secrets

import (
	"github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/project"
)

// Key-pair secret types and their option names.
const (
	TypeRSAPEMBase64         = "rsa_pem_base64"
	TypeCloudFrontSigningKey = "cloudfront_signing_key"

	OptionPEMSuffix = "pem_base64_environ_suffix"
	OptionPUBSuffix = "pub_base64_environ_suffix"

	DefaultPEMSuffix = "_PEM_BASE64"
	DefaultPUBSuffix = "_PUB_BASE64"
)

// Expand flattens one raw managed secret into environment entries.
//
// A string maps to {name: value}. An object of a key-pair type maps to
// {name+pemSuffix: pem, name+pubSuffix: pub}, skipping a half that is missing
// or not a string. Any other object type, or a raw value that is neither a
// string nor an object, is an *errors.UnsupportedSecretTypeError.
func Expand(name string, raw any, spec project.ManagedSecretSpec) (map[string]string, error) {
	switch v := raw.(type) {
	case string:
		return map[string]string{name: v}, nil

	case map[string]any:
		switch spec.Type {
		case TypeRSAPEMBase64, TypeCloudFrontSigningKey:
			out := map[string]string{}
			if pem, ok := v["pem"].(string); ok {
				out[name+option(spec, OptionPEMSuffix, DefaultPEMSuffix)] = pem
			}
			if pub, ok := v["pub"].(string); ok {
				out[name+option(spec, OptionPUBSuffix, DefaultPUBSuffix)] = pub
			}
			return out, nil
		}
		return nil, &errors.UnsupportedSecretTypeError{Name: name, Type: spec.Type}
	}

	return nil, &errors.UnsupportedSecretTypeError{Name: name}
}

func option(spec project.ManagedSecretSpec, key, fallback string) string {
	if v, ok := spec.Options[key]; ok {
		return v
	}
	return fallback
}

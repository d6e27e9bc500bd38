// Package validation checks streamkit configuration and parameters and
// reports problems as a single VALIDATION_ERROR.
//
// Struct tags are checked with go-playground/validator, naming each field
// by its config key:
//
//	type CodecConfig struct {
//	    Flush string `mapstructure:"flush" validate:"oneof=pad raw"`
//	}
//	err := validation.Validate(cfg)
//
// Values built in code are checked with a Checker:
//
//	err := validation.New().
//		NotBlank("binary", cmd.Binary).
//		KeyValue("env", cmd.Env).
//		Err()
package validation

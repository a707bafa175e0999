// Package validation validates configuration structs.
//
// Struct tags are checked with go-playground/validator and reported using the
// mapstructure key of each field. Rules that tags cannot express are checked
// with the chainable Validator:
//
//	v := validation.New()
//	v.URL("asr_url", cfg.ASRURL).Min("pipeline.max_concurrent", cfg.MaxConcurrent, 0)
//	return v.Error()
package validation

package configs

import (
	"fmt"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/rule"
)

// Validate 按 rule 标签校验当前配置.
func Validate() error {
	cfg := GetConfig()
	if err := rule.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

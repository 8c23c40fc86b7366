// Package emailsvc implements core.EmailService.
package emailsvc

import "github.com/trezcool/roster/core"

// NewService delivers through SendGrid when an API key is configured, and to the console otherwise.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.SendgridApiKey != "" && !conf.TestMode {
		return NewSendgridService(conf, logger)
	}
	return NewConsoleService(conf, logger)
}

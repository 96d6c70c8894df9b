package backend

import (
	"fmt"

	log "gopkg.in/inconshreveable/log15.v2"
)

func NewLogger(conf LogConfig) (log.Logger, error) {
	logger := log.New()
	err := setFilterHandler(conf.Level, logger, log.StdoutHandler)
	if err != nil {
		return nil, ConfigError{Key: "log.level", Reason: err.Error()}
	}

	return logger, nil
}

func setFilterHandler(level string, logger log.Logger, handler log.Handler) error {
	if level == "none" {
		logger.SetHandler(log.DiscardHandler())
		return nil
	}

	lvl, err := log.LvlFromString(level)
	if err != nil {
		return fmt.Errorf("Bad log level: %v", err)
	}
	logger.SetHandler(log.LvlFilterHandler(lvl, handler))

	return nil
}

package redis

import "github.com/planet-nine-app/linkitylink/internal/logger"

func nopLogger() logger.Logger { return logger.New("error", false) }

package opts

import (
	"github.com/walteh/looprc/pkg/config"
	"github.com/walteh/looprc/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config   *config.Config
	Reporter *log.Logger
}

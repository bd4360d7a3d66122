package root

import (
	"github.com/fixbay/fixbay-backend/apps/cli/cmd/auth"
	"github.com/fixbay/fixbay-backend/apps/cli/cmd/bootstrap"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
}

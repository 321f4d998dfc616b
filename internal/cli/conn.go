package cli

import (
	"github.com/spf13/cobra"

	"github.com/cmohl2013/omero-isa/pkg/omero"
	"github.com/cmohl2013/omero-isa/pkg/omero/gormstore"
)

// connOpts holds the connection flags shared by import and pack.
type connOpts struct {
	server string // server hostname, forwarded to the upload subprocess
	port   int
	db     string // sqlite database path of the bundled store
}

func (o *connOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.server, "server", "s", "localhost", "server hostname")
	cmd.Flags().IntVarP(&o.port, "port", "p", 4064, "server port")
	cmd.Flags().StringVar(&o.db, "db", "omero.db", "sqlite database path")
}

// connect opens the gateway backend.
func (o *connOpts) connect() (omero.Gateway, error) {
	return gormstore.Open(o.db)
}

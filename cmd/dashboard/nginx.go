package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthewjablack/dynamicdashboard/internal/config"
)

func runNginx(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	bp := cfg.BasePath
	if bp == "/" {
		bp = "/dashboard"
		fmt.Fprintln(out, `# base_path is "/"; using "/dashboard" as example.`)
		fmt.Fprintln(out, "# Set base_path in config.yaml to match your desired location.")
		fmt.Fprintln(out)
	}

	// Ensure trailing slash for nginx location
	loc := bp + "/"

	fmt.Fprintf(out, `# --------------------------------------------------
# nginx reverse proxy configuration for %[1]s
# --------------------------------------------------
# Add this inside an http { server { ... } } block.

location %[2]s {
    proxy_pass         http://%[3]s%[2]s;
    proxy_http_version 1.1;

    # Layout session WebSocket (%[2]sapi/session)
    proxy_set_header   Upgrade $http_upgrade;
    proxy_set_header   Connection "upgrade";

    # Forward client info
    proxy_set_header   Host              $host;
    proxy_set_header   X-Real-IP         $remote_addr;
    proxy_set_header   X-Forwarded-For   $proxy_add_x_forwarded_for;
    proxy_set_header   X-Forwarded-Proto $scheme;
`, appName, loc, cfg.Listen)

	if len(cfg.Auth.Tokens) == 0 {
		fmt.Fprintf(out, `
    # Identity from your auth layer, read via auth.trusted_header
    proxy_set_header   %s $remote_user;
`, cfg.Auth.TrustedHeader)
	}

	fmt.Fprint(out, `
    # Long-lived layout sessions
    proxy_buffering    off;
    proxy_read_timeout 86400s;
}
`)
	fmt.Fprintln(out, "# config.yaml should have:")
	fmt.Fprintf(out, "#   base_path: \"%s\"\n", bp)
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type runFlags struct {
	host   string
	bucket string
	remove bool
	local  bool
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single backup now and exit",
		Long: `Dump the database, upload the archive, report the outcome, and exit.

The run uses the same retry budget and notifications as the scheduler. The
exit status is non-zero when every attempt failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "", "database host[:port] (overrides database.host)")
	cmd.Flags().StringVar(&flags.bucket, "bucket", "", "destination bucket (overrides s3.bucket)")
	cmd.Flags().BoolVar(&flags.remove, "remove", false, "delete the local archive once it is stored")
	cmd.Flags().BoolVar(&flags.local, "local", false, "keep the archive locally and skip the upload")
	cmd.Flags().SetNormalizeFunc(runFlagAliases)

	return cmd
}

// runFlagAliases maps legacy flag names onto their current ones.
func runFlagAliases(f *pflag.FlagSet, name string) pflag.NormalizedName {
	if name == "s3-bucket" {
		name = "bucket"
	}
	return pflag.NormalizedName(name)
}

// overrides maps the flags that were set to config keys.
func (f *runFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	o := make(map[string]interface{})
	if cmd.Flags().Changed("host") {
		o["database.host"] = f.host
	}
	if cmd.Flags().Changed("bucket") {
		o["s3.bucket"] = f.bucket
	}
	if cmd.Flags().Changed("remove") {
		o["remove_local"] = f.remove
	}
	if cmd.Flags().Changed("local") {
		o["local_only"] = f.local
	}
	return o
}

func runRun(cmd *cobra.Command, flags *runFlags) error {
	cfg, err := loadConfig(flags.overrides(cmd))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	a, err := newAgent(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}

	outcome := a.runner.Run(cmd.Context())
	if err := outcome.Err(); err != nil {
		return err
	}

	logger.Info("backup completed successfully",
		"artifact", outcome.Artifact,
		"duration", outcome.Duration,
	)

	return nil
}

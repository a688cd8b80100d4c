package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sofmeright/asg-builder/src/auth"
	"github.com/sofmeright/asg-builder/src/build"
	"github.com/sofmeright/asg-builder/src/config"
	"github.com/sofmeright/asg-builder/src/imagedef"
	"github.com/sofmeright/asg-builder/src/output"
	"github.com/sofmeright/asg-builder/src/payload"
)

// buildFlags holds raw flag values. Only flags the user set override the
// config file.
type buildFlags struct {
	imageName        string
	baseImage        string
	localhost        bool
	tlsPort          int
	httpPort         int
	authMode         string
	user             string
	password         string
	ldapURL          string
	ldapBindDN       string
	ldapBindPassword string
	trustedPeers     []string
	payloads         []string
	configVolume     string
	extensionsVolume string
	launch           bool
	foreground       bool
	root             string
	engine           string
	fetchTimeout     int
	noBuild          bool
}

var bf buildFlags

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Generate the build context, build the image and optionally launch it",
	Long: `Generate <root>/<image>/Dockerfile with its auth files and staged packages,
then build <image>:latest with the container engine.

Packages already present in <root>/<image>/rpms are not fetched again.`,
	Example: `  asg-builder build -n bigip_gateway -i supernetops/f5-apiservices-gateway:latest \
      --tlsport 9443 --auth basic --user admin --password adminpassword

  asg-builder build --imagename enterprise_pool_deployer --auth ldap \
      --ldapurl ldap://dc1.example.com --ldapbinddn svc@example.com --ldapbindpassword s3cret \
      --bigips admin:admin:192.168.245.1,admin:admin:192.168.245.2 \
      --rpms https://git.example.com/pool_deployer/releases/download/v1.0.0/pool-deployer-1.0.0.noarch.rpm`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	bindBuildFlags(buildCmd.Flags(), &bf)
	rootCmd.AddCommand(buildCmd)
}

func bindBuildFlags(fs *pflag.FlagSet, f *buildFlags) {
	fs.StringVarP(&f.imageName, "imagename", "n", "", "image name to create (required)")
	fs.StringVarP(&f.baseImage, "image", "i", config.DefaultBaseImage, "base image to extend")
	fs.BoolVar(&f.localhost, "localhost", false, "publish ports on 127.0.0.1 only")
	fs.IntVar(&f.tlsPort, "tlsport", config.DefaultTLSPort, "TLS port to expose")
	fs.IntVar(&f.httpPort, "httpport", 0, "HTTP port to expose (0 disables)")
	fs.StringVar(&f.authMode, "auth", string(config.AuthNone), "authorization type: none, basic or ldap")
	fs.StringVar(&f.user, "user", "", "basic auth username")
	fs.StringVar(&f.password, "password", "", "basic auth password")
	fs.StringVar(&f.ldapURL, "ldapurl", "", "LDAP auth URL")
	fs.StringVar(&f.ldapBindDN, "ldapbinddn", "", "LDAP auth bind DN")
	fs.StringVar(&f.ldapBindPassword, "ldapbindpassword", "", "LDAP auth bind password")
	fs.StringSliceVar(&f.trustedPeers, "bigips", nil, "BIG-IPs to trust, comma separated username:password:mgmt-ip")
	fs.StringSliceVar(&f.payloads, "rpms", nil, "iControl LX RPM URLs or local paths to install")
	fs.StringVar(&f.configVolume, "config-volume", "", "host path mounted at "+build.ConfigMountPath+" on launch")
	fs.StringVar(&f.extensionsVolume, "extensions-volume", "", "host path mounted at "+build.ExtensionsMountPath+" on launch")
	fs.BoolVar(&f.launch, "launch", false, "launch a container from the built image")
	fs.BoolVar(&f.foreground, "foreground", false, "launch interactively instead of detached")
	fs.StringVar(&f.root, "root", ".", "directory working directories are created in")
	fs.StringVar(&f.engine, "engine", config.DefaultEngine, "container engine binary")
	fs.IntVar(&f.fetchTimeout, "fetch-timeout", config.DefaultFetchTimeout, "seconds allowed per remote package fetch (0 = no limit)")
	fs.BoolVar(&f.noBuild, "no-build", false, "generate the build context only")
}

// applyBuildFlags overlays explicitly set flags onto cfg.
func applyBuildFlags(fs *pflag.FlagSet, f *buildFlags, cfg *config.BuildConfig) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("imagename", func() { cfg.ImageName = f.imageName })
	set("image", func() { cfg.BaseImage = f.baseImage })
	set("localhost", func() { cfg.Localhost = f.localhost })
	set("tlsport", func() { cfg.TLSPort = f.tlsPort })
	set("httpport", func() { cfg.HTTPPort = f.httpPort })
	set("auth", func() { cfg.Auth.Mode = config.AuthMode(f.authMode) })
	set("user", func() { cfg.Auth.User = f.user })
	set("password", func() { cfg.Auth.Password = f.password })
	set("ldapurl", func() { cfg.Auth.LDAPURL = f.ldapURL })
	set("ldapbinddn", func() { cfg.Auth.LDAPBindDN = f.ldapBindDN })
	set("ldapbindpassword", func() { cfg.Auth.LDAPBindPassword = f.ldapBindPassword })
	set("bigips", func() { cfg.TrustedPeers = f.trustedPeers })
	set("rpms", func() { cfg.Payloads = f.payloads })
	set("config-volume", func() { cfg.ConfigVolume = f.configVolume })
	set("extensions-volume", func() { cfg.ExtensionsVolume = f.extensionsVolume })
	set("launch", func() { cfg.Launch = f.launch })
	set("foreground", func() { cfg.Foreground = f.foreground })
	set("root", func() { cfg.Root = f.root })
	set("engine", func() { cfg.Engine = f.engine })
	set("fetch-timeout", func() { cfg.FetchTimeout = f.fetchTimeout })
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyBuildFlags(cmd.Flags(), &bf, cfg)

	return execute(context.Background(), cmd.OutOrStdout(), cfg, bf.noBuild)
}

// execute composes the context, then builds and launches (or prints the
// launch command). Validation runs before anything touches disk.
func execute(ctx context.Context, w io.Writer, cfg *config.BuildConfig, noBuild bool) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}

	color := output.UseColor()
	printer := &output.Printer{Writer: w, Color: color}
	start := time.Now()

	// --- Compose ---
	output.SectionStart(w, "asg_compose", "Compose")
	composer := newComposer(cfg, printer)
	composeStart := time.Now()
	res, err := composer.Compose(ctx, cfg)
	output.SectionEnd(w, "asg_compose")
	if err != nil {
		return err
	}
	defer res.Release()

	renderContext(w, cfg, res, time.Since(composeStart), color)

	if noBuild {
		printer.Notice("build context ready: %s", res.Dir.Path)
		return nil
	}

	engine := build.NewEngine(cfg.Engine, logger)
	engine.Stdout = w

	// --- Build ---
	output.SectionStartCollapsed(w, "asg_build", "Build "+cfg.ImageRef())
	buildStart := time.Now()
	err = engine.Build(ctx, res.Dir.Path, cfg.ImageRef())
	output.SectionEnd(w, "asg_build")
	if err != nil {
		return err
	}
	buildElapsed := time.Since(buildStart)

	// --- Launch ---
	opts := build.RunOptionsFrom(cfg)
	launched := false
	if cfg.Launch {
		if err := engine.Run(ctx, opts); err != nil {
			return err
		}
		launched = true
	}

	sum := output.NewSection(w, "Summary", 0, color)
	sum.Step("compose", output.StatusSuccess, fmt.Sprintf("%d package(s)", len(res.Payloads)))
	sum.Step("build", output.StatusSuccess, fmt.Sprintf("%s in %s", cfg.ImageRef(), buildElapsed.Round(time.Millisecond)))
	if launched {
		sum.Step("launch", output.StatusSuccess, opts.Image)
	} else {
		sum.Step("launch", output.StatusSkipped, "--launch not set")
	}
	sum.Separator()
	sum.Total(time.Since(start), output.StatusSuccess)
	sum.Close()

	if launched {
		if !cfg.Foreground && cfg.TLSPort > 0 {
			printer.Notice("\nContainer running at https://localhost:%d\n", cfg.TLSPort)
		}
		return nil
	}
	printer.Notice("\nYou can launch your container with the command")
	printer.Command(build.LaunchCommand(cfg.Engine, opts))
	return nil
}

func newComposer(cfg *config.BuildConfig, printer *output.Printer) *imagedef.Composer {
	var progress io.Writer
	if printer.Color {
		progress = os.Stderr
	}
	fetcher := payload.NewHTTPFetcher(time.Duration(cfg.FetchTimeout)*time.Second, progress)
	stager := payload.NewStager(fetcher, printer.Lines(), logger)
	return imagedef.NewComposer(auth.NewMaterializer(logger), stager, logger)
}

// renderContext prints what Compose produced.
func renderContext(w io.Writer, cfg *config.BuildConfig, res *imagedef.Result, elapsed time.Duration, color bool) {
	sec := output.NewSection(w, "Context", elapsed, color)
	sec.KV("image", cfg.ImageRef())
	sec.KV("base", cfg.BaseImage)
	sec.KV("auth", string(cfg.Auth.Mode))
	sec.KV("definition", res.DocumentPath)
	if len(cfg.TrustedPeers) > 0 {
		sec.KV("trusted", fmt.Sprintf("%d BIG-IP(s)", len(cfg.TrustedPeers)))
	}
	if len(res.Payloads) > 0 {
		sec.Separator()
		for _, p := range res.Payloads {
			if p.Reused {
				sec.Status("cached", p.Filename, output.StatusSkipped)
			} else {
				sec.Status("fetched", output.Dimmed(p.Filename, color), output.StatusSuccess)
			}
		}
	}
	sec.Close()
}

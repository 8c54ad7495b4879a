package docker

import (
	"context"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/consts"
	"github.com/pseudomuto/oraclekeeper/pkg/oracle"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultOraclePort is the listener port inside the container
	DefaultOraclePort = nat.Port("1521/tcp")

	// DefaultService is the pluggable database created by the oracle-free images
	DefaultService = "FREEPDB1"

	// readyMessage is logged by the image once the database accepts connections
	readyMessage = "DATABASE IS READY TO USE!"

	initScriptsDir = "/container-entrypoint-initdb.d"
)

type (
	// DockerOptions represents options for running Oracle in Docker
	DockerOptions struct {
		// Image is the Oracle image to run (default: consts.DefaultOracleImage)
		Image string

		// AdminPassword is the SYS/SYSTEM password (default: "oracle")
		AdminPassword string

		// User is the application user created on startup (default: "app")
		User string

		// Password for User (default: "app")
		Password string

		// InitDir is an optional directory of scripts run once after the
		// database is created (relative paths will be converted to absolute)
		InitDir string

		// StartupTimeout bounds how long Start waits for the database (default: 5m)
		StartupTimeout time.Duration
	}

	// Container manages Oracle Docker containers for migration testing
	Container struct {
		options   DockerOptions
		container testcontainers.Container
		url       string
	}
)

// New creates a new Docker container with default options
func New() *Container {
	return NewWithOptions(DockerOptions{})
}

// NewWithOptions creates a new Docker container with custom options
//
// Example:
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Image: "gvenzl/oracle-free:23-slim",
//		User:  "migrator",
//	})
func NewWithOptions(opts DockerOptions) *Container {
	if opts.Image == "" {
		opts.Image = consts.DefaultOracleImage
	}

	if opts.AdminPassword == "" {
		opts.AdminPassword = "oracle"
	}

	if opts.User == "" {
		opts.User = "app"
	}

	if opts.Password == "" {
		opts.Password = opts.User
	}

	if opts.StartupTimeout == 0 {
		opts.StartupTimeout = 5 * time.Minute
	}

	return &Container{options: opts}
}

// Start starts an Oracle Docker container and waits until it is ready
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	req := testcontainers.ContainerRequest{
		Image:        c.options.Image,
		ExposedPorts: []string{string(DefaultOraclePort)},
		Env: map[string]string{
			"ORACLE_PASSWORD":   c.options.AdminPassword,
			"APP_USER":          c.options.User,
			"APP_USER_PASSWORD": c.options.Password,
		},
		WaitingFor: wait.ForLog(readyMessage).WithStartupTimeout(c.options.StartupTimeout),
	}

	if c.options.InitDir != "" {
		absInitDir, err := filepath.Abs(c.options.InitDir)
		if err != nil {
			return errors.Wrapf(err, "failed to get absolute path for InitDir: %s", c.options.InitDir)
		}

		req.HostConfigModifier = func(hostConfig *container.HostConfig) {
			hostConfig.Mounts = []mount.Mount{
				{
					Type:     mount.TypeBind,
					Source:   absInitDir,
					Target:   initScriptsDir,
					ReadOnly: true,
				},
			}
		}
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if ctr != nil {
			_ = ctr.Terminate(ctx)
		}
		return errors.Wrap(err, "failed to start Oracle container")
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return errors.Wrap(err, "failed to get container host")
	}

	port, err := ctr.MappedPort(ctx, DefaultOraclePort)
	if err != nil {
		_ = ctr.Terminate(ctx)
		return errors.Wrap(err, "failed to get container port")
	}

	c.container = ctr
	c.url = oracle.BuildURL(host, port.Int(), DefaultService, c.options.User, c.options.Password)
	return nil
}

// Stop stops and removes the Oracle Docker container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil
	c.url = ""

	if err != nil {
		return errors.Wrap(err, "failed to stop Oracle container")
	}

	return nil
}

// GetURL returns the go-ora URL for the application user
func (c *Container) GetURL() (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	return c.url, nil
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}

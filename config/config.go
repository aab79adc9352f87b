// Package config holds the servers the client talks to and the license
// identity it presents. Values are loaded from YAML and passed around
// explicitly.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
	"go.uber.org/multierr"

	"github.com/ozontech/lumina/consts"
	"github.com/ozontech/lumina/transport"
)

type Server struct {
	Address     string            `yaml:"address"`
	Port        uint16            `yaml:"port"`
	AllowPush   bool              `yaml:"allow_push"`
	Anonymous   bool              `yaml:"anonymous"`
	SendLicense bool              `yaml:"send_license"`
	TLS         transport.TLSMode `yaml:"tls"`
	Cert        string            `yaml:"cert"`
}

func (s Server) String() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(int(s.Port)))
}

type Config struct {
	LicenseFile string        `yaml:"license_file"`
	LicenseID   uint32        `yaml:"license_id"`
	Watermark   uint16        `yaml:"watermark"`
	Timeout     time.Duration `yaml:"timeout"`
	// ConnectRate limits new connections per second, 0 means no limit.
	ConnectRate float64  `yaml:"connect_rate"`
	Proxy       string   `yaml:"proxy"`
	Servers     []Server `yaml:"servers"`

	// License is the content of LicenseFile.
	License []byte `yaml:"-"`
}

// Default is a single anonymous read only server without TLS.
func Default() Config {
	return Config{
		Timeout: consts.DefaultTimeout,
		Servers: []Server{{
			Address:   "lumen.abda.nl",
			Port:      1235,
			Anonymous: true,
			TLS:       transport.TLSOff,
		}},
	}
}

// Load reads the YAML file at path, fills omitted values from Default and
// validates the result. Relative license and certificate paths are resolved
// against the directory of path.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	conf, err := Parse(b)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	conf.resolvePaths(filepath.Dir(path))
	if err := conf.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := conf.ReadLicense(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Parse decodes b over Default. It does not validate.
func Parse(b []byte) (Config, error) {
	conf := Default()
	if err := yaml.UnmarshalWithOptions(b, &conf, yaml.DisallowUnknownField()); err != nil {
		return Config{}, err
	}
	for i := range conf.Servers {
		if conf.Servers[i].TLS == "" {
			conf.Servers[i].TLS = transport.TLSOff
		}
	}
	if conf.Timeout == 0 {
		conf.Timeout = consts.DefaultTimeout
	}
	return conf, nil
}

func (c *Config) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.LicenseFile = abs(c.LicenseFile)
	for i := range c.Servers {
		c.Servers[i].Cert = abs(c.Servers[i].Cert)
	}
}

// ReadLicense loads License from LicenseFile when one is set.
func (c *Config) ReadLicense() error {
	if c.LicenseFile == "" {
		return nil
	}
	b, err := os.ReadFile(c.LicenseFile)
	if err != nil {
		return fmt.Errorf("read license: %w", err)
	}
	c.License = b
	return nil
}

// Validate reports every problem of c at once.
func (c *Config) Validate() (err error) {
	if len(c.Servers) == 0 {
		err = multierr.Append(err, errors.New("no servers configured"))
	}
	if c.Timeout < 0 {
		err = multierr.Append(err, fmt.Errorf("negative timeout %s", c.Timeout))
	}
	if c.ConnectRate < 0 {
		err = multierr.Append(err, fmt.Errorf("negative connect rate %g", c.ConnectRate))
	}
	for i, s := range c.Servers {
		if s.Address == "" {
			err = multierr.Append(err, fmt.Errorf("server #%d: empty address", i))
		}
		if s.Port == 0 {
			err = multierr.Append(err, fmt.Errorf("server #%d (%s): port is not set", i, s.Address))
		}
		if !s.TLS.Valid() {
			err = multierr.Append(err, fmt.Errorf("server #%d (%s): unknown tls mode %q", i, s.Address, s.TLS))
		}
		if s.TLS == transport.TLSCert && s.Cert == "" {
			err = multierr.Append(err, fmt.Errorf("server #%d (%s): tls mode %q requires cert", i, s.Address, s.TLS))
		}
	}
	return err
}

// TransportOptions builds the dialer options of s.
func (c *Config) TransportOptions(s Server) transport.Options {
	return transport.Options{
		Timeout:  c.Timeout,
		TLS:      s.TLS,
		CertFile: s.Cert,
		Proxy:    c.Proxy,
	}
}

// PushServers returns the servers accepting pushes.
func (c *Config) PushServers() []Server {
	var servers []Server
	for _, s := range c.Servers {
		if s.AllowPush {
			servers = append(servers, s)
		}
	}
	return servers
}

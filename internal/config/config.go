package config

import (
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/iotrack/helpers"
	"github.com/temoto/iotrack/internal/http1"
	"github.com/temoto/iotrack/internal/types"
	"github.com/temoto/iotrack/log2"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []Source `hcl:"include"`

	AppId     string `hcl:"app_id"`
	UserId    string `hcl:"user_id"`
	Interface string `hcl:"interface"`
	Mac       string `hcl:"mac"`
	LogDebug  bool   `hcl:"log_debug"`

	Collector struct {
		Host       string `hcl:"host"`
		CloudFront string `hcl:"cloudfront"`
		Port       int    `hcl:"port"`
		Path       string `hcl:"path"`
		UserAgent  string `hcl:"user_agent"`
	} `hcl:"collector"`
	Http struct { //nolint:maligned
		ResponseTimeoutMs int  `hcl:"response_timeout_ms"`
		PollIntervalMs    int  `hcl:"poll_interval_ms"`
		DialTimeoutMs     int  `hcl:"dial_timeout_ms"`
		FloatPrecision    *int `hcl:"float_precision"` // nil or negative means default
	} `hcl:"http"`
	Bridge struct {
		Enable         bool   `hcl:"enable"`
		Broker         string `hcl:"broker"`
		Topic          string `hcl:"topic"`
		ClientId       string `hcl:"client_id"`
		Username       string `hcl:"username"`
		Password       string `hcl:"password"` // secret
		LogDebug       bool   `hcl:"log_debug"`
		ConnectTimeout int    `hcl:"connect_timeout_sec"`
	} `hcl:"bridge"`
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// CollectorHost resolves `cloudfront` shortcut when `host` is empty.
func (c *Config) CollectorHost() string {
	if c.Collector.Host == "" && c.Collector.CloudFront != "" {
		return types.CloudFrontHost(c.Collector.CloudFront)
	}
	return c.Collector.Host
}

func (c *Config) ResponseTimeout() time.Duration {
	return helpers.IntMillisecondDefault(c.Http.ResponseTimeoutMs, http1.DefaultResponseTimeout)
}
func (c *Config) PollInterval() time.Duration {
	return helpers.IntMillisecondDefault(c.Http.PollIntervalMs, http1.DefaultPollInterval)
}
func (c *Config) DialTimeout() time.Duration {
	return helpers.IntMillisecondDefault(c.Http.DialTimeoutMs, http1.DefaultDialTimeout)
}

// Precision for float values without explicit precision, e.g. from bridge messages.
func (c *Config) FloatPrecision() int {
	if p := c.Http.FloatPrecision; p != nil && *p >= 0 {
		return *p
	}
	return types.DefaultPrecision
}

// Identity without Mac, caller resolves device address.
func (c *Config) Identity() types.Identity {
	id := types.DefaultIdentity()
	id.AppId = c.AppId
	id.UserId = c.UserId
	id.Mac = c.Mac
	id.CollectorHost = c.CollectorHost()
	if c.Collector.Port != 0 {
		id.CollectorPort = c.Collector.Port
	}
	if c.Collector.Path != "" {
		id.CollectorPath = c.Collector.Path
	}
	if c.Collector.UserAgent != "" {
		id.UserAgent = c.Collector.UserAgent
	}
	return id
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if c.AppId == "" {
		errs = append(errs, errors.NotValidf("config: app_id is empty"))
	}
	if c.CollectorHost() == "" {
		errs = append(errs, errors.NotValidf("config: collector.host and collector.cloudfront are empty"))
	}
	if p := c.Collector.Port; p < 0 || p > 65535 {
		errs = append(errs, errors.NotValidf("config: collector.port=%d", p))
	}
	if c.Bridge.Enable && (c.Bridge.Broker == "" || c.Bridge.Topic == "") {
		errs = append(errs, errors.NotValidf("config: bridge requires broker and topic"))
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			*errs = append(*errs, errors.NotFoundf("config required name=%s path=%s", source.Name, norm))
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config unmarshal source=%s", source.Name))
		return
	}

	var includes []Source
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			*errs = append(*errs, errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name))
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// Read merges named sources in order, later values override earlier.
func Read(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("code error config.Read() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	return c, helpers.FoldErrors(errs)
}

func MustRead(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := Read(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

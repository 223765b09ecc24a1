package modem

import (
	"fmt"
	"log/slog"

	"i4.energy/across/fakeril/device"
)

// Config holds the settings of a simulated modem. Build one with
// NewConfigBuilder.
type Config struct {
	// Profile describes the simulated slot. Unset fields take the default
	// profile of Profile.Slot.
	Profile device.Profile
	// Dialer opens the transport used by ServeDialer. It may be nil when
	// frames are only exchanged through SubmitFrame and OnFrame.
	Dialer Dialer
	// Logger receives the simulator's logs. Defaults to slog.Default().
	Logger *slog.Logger
	// Seed seeds the signal strength generator.
	Seed uint64
	// CardPresent inserts the virtual SIM card at power-up.
	CardPresent bool
	// Startup runs the power-up sequence when the loop starts.
	Startup bool
	// OutboundQueue is the number of frames buffered per served transport
	// before frames are dropped.
	OutboundQueue int
}

func (c *Config) setDefaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.OutboundQueue == 0 {
		c.OutboundQueue = 256
	}
}

func (c *Config) validate() error {
	p, err := c.Profile.Normalize()
	if err != nil {
		return err
	}
	c.Profile = p
	if c.OutboundQueue < 0 {
		return fmt.Errorf("outbound queue size %d is negative", c.OutboundQueue)
	}
	return nil
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder for the default profile of slot 0 with
// the SIM card inserted and the power-up sequence enabled.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{config: Config{
		Profile:     device.DefaultProfile(0),
		CardPresent: true,
		Startup:     true,
	}}
}

func (b *ConfigBuilder) WithProfile(p device.Profile) *ConfigBuilder {
	b.config.Profile = p
	return b
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

func (b *ConfigBuilder) WithSeed(seed uint64) *ConfigBuilder {
	b.config.Seed = seed
	return b
}

func (b *ConfigBuilder) WithCardPresent(present bool) *ConfigBuilder {
	b.config.CardPresent = present
	return b
}

func (b *ConfigBuilder) WithStartup(enabled bool) *ConfigBuilder {
	b.config.Startup = enabled
	return b
}

func (b *ConfigBuilder) WithOutboundQueue(n int) *ConfigBuilder {
	b.config.OutboundQueue = n
	return b
}

// Build applies defaults and validates the configuration.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	c.setDefaults()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

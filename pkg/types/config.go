package types

// MenuEntry pairs a human-readable label with the application endpoint
// it routes to.
type MenuEntry struct {
	Label    string `yaml:"label" json:"label"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// RoutingTable maps connector name -> endpoint name -> [connector,
// endpoint] target pair.
type RoutingTable map[string]map[string][]string

// RedisConfig holds connection options for the session store.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty"`
}

// Config is the worker configuration. The static fields are fixed for
// the lifetime of the process; the dynamic fields may be reloaded while
// the worker runs and are re-read for every message.
type Config struct {
	// Static configuration.
	WorkerName                string      `yaml:"worker_name" json:"worker_name"`
	SessionExpiry             int         `yaml:"session_expiry" json:"session_expiry"`
	MessageExpiry             int         `yaml:"message_expiry" json:"message_expiry"`
	Redis                     RedisConfig `yaml:"redis" json:"redis"`
	ReceiveInboundConnectors  []string    `yaml:"receive_inbound_connectors" json:"receive_inbound_connectors"`
	ReceiveOutboundConnectors []string    `yaml:"receive_outbound_connectors" json:"receive_outbound_connectors"`
	Channel                   string      `yaml:"channel,omitempty" json:"channel,omitempty"`
	HTTPAddr                  string      `yaml:"http_addr,omitempty" json:"http_addr,omitempty"`

	// Dynamic, per-message configuration.
	MenuTitle           string       `yaml:"menu_title" json:"menu_title"`
	Entries             []MenuEntry  `yaml:"entries" json:"entries"`
	InvalidInputMessage string       `yaml:"invalid_input_message" json:"invalid_input_message"`
	TryAgainMessage     string       `yaml:"try_again_message" json:"try_again_message"`
	ErrorMessage        string       `yaml:"error_message" json:"error_message"`
	SubTitle            string       `yaml:"sub_title,omitempty" json:"sub_title,omitempty"`
	ImageURL            string       `yaml:"image_url,omitempty" json:"image_url,omitempty"`
	RoutingTable        RoutingTable `yaml:"routing_table" json:"routing_table"`
}

// TargetEndpoints returns the set of endpoints reachable through the
// current menu entries. Always computed from live config, never from
// session data.
func (c *Config) TargetEndpoints() map[string]struct{} {
	targets := make(map[string]struct{}, len(c.Entries))
	for _, entry := range c.Entries {
		targets[entry.Endpoint] = struct{}{}
	}
	return targets
}

// EndpointNames returns the menu entries' endpoints in menu order.
func (c *Config) EndpointNames() []string {
	names := make([]string, len(c.Entries))
	for i, entry := range c.Entries {
		names[i] = entry.Endpoint
	}
	return names
}

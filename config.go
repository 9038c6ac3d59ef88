package witch

// Config holds the VM settings the CLI reads at startup (the VM's initial
// stack capacity and whether it traces each executed instruction) and
// AllowSpeculativeFnLiterals, which nothing reads: Parse takes no Config and
// always tries a function literal before a parenthesized expression or a
// list literal.
// Three fixed settings don't need clarete's dotted-path `map[string]*cfgVal`
// machinery — a fielded struct names them at compile time instead of
// panicking on a typo'd path at runtime, the way termfx-morfx's own
// internal/config.Config does for its (larger) settings list.
type Config struct {
	AllowSpeculativeFnLiterals bool
	VMStackInitialCapacity     int
	VMTrace                    bool
}

// NewConfig returns the default settings.
func NewConfig() *Config {
	return &Config{
		AllowSpeculativeFnLiterals: true,
		VMStackInitialCapacity:     256,
		VMTrace:                    false,
	}
}

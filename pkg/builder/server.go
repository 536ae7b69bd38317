package builder

func (b *Builder) Port(port string) *Builder {
	b.cfg.Server.Port = port
	return b
}

func (b *Builder) AllowedOrigins(origins string) *Builder {
	b.cfg.Server.AllowedOrigins = origins
	return b
}

// Environment sets development or production
func (b *Builder) Environment(env string) *Builder {
	b.cfg.Server.Environment = env
	return b
}

func (b *Builder) LogLevel(level string) *Builder {
	b.cfg.Server.LogLevel = level
	return b
}

// RequestTimeout bounds each HTTP request, including the model call
func (b *Builder) RequestTimeout(ms int) *Builder {
	b.cfg.Server.RequestTimeoutMs = ms
	return b
}

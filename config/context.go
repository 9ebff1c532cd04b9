package config

type Context struct {
	Modules []ModuleI
	Config  *Config
}

func (ctx *Context) FindModule(name string) (ModuleI, bool) {
	for _, m := range ctx.Modules {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

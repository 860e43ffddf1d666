package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/spf13/viper"
)

type listener struct {
	apply func(*Config)
	fail  func(error)
}

// OnChange registers fn to run after the config file changed on disk and
// the new contents decoded and validated. Invalid edits are reported to
// onError and leave the current values in place.
func (c *Config) OnChange(fn func(*Config), onError func(error)) error {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return ewrap.New("no config file to watch")
	}

	c.mu.Lock()
	first := len(c.listeners) == 0
	c.listeners = append(c.listeners, listener{apply: fn, fail: onError})
	c.mu.Unlock()

	if !first {
		return nil
	}

	c.v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}

		c.mu.RLock()
		listeners := append([]listener{}, c.listeners...)
		c.mu.RUnlock()

		next, err := c.reload(c.v)
		if err != nil {
			err = ewrap.Wrap(err, "reloading config").WithMetadata("file", event.Name)

			for _, l := range listeners {
				if l.fail != nil {
					l.fail(err)
				}
			}

			return
		}

		for _, l := range listeners {
			l.apply(next)
		}
	})
	c.v.WatchConfig()

	return nil
}

// reload decodes a fresh copy carrying over the secrets already loaded.
func (c *Config) reload(v *viper.Viper) (*Config, error) {
	next := &Config{v: v}
	if err := next.decode(v); err != nil {
		return nil, err
	}

	c.mu.RLock()
	store := c.Store
	c.mu.RUnlock()

	if store != nil {
		next.Store = store
		if err := next.applySecrets(); err != nil {
			return nil, err
		}
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	return next, nil
}

package client

import (
	"fmt"
	"time"

	"fosscord/pkg/config"
	"fosscord/pkg/sweeper"
)

// SweepMessages evicts messages created before now minus lifetime.
func (c *Client) SweepMessages(lifetime time.Duration) sweeper.SweepFunc {
	return func(now time.Time) int {
		cutoff := now.Add(-lifetime)
		return c.Messages.Cache.Sweep(func(m *Message) bool {
			if !m.ID.Time().Before(cutoff) {
				return false
			}
			m.teardown()
			return true
		})
	}
}

// SweepUsers evicts every cached user except the client user.
func (c *Client) SweepUsers() sweeper.SweepFunc {
	return func(time.Time) int {
		self := c.selfID()
		return c.Users.Cache.Sweep(func(u *User) bool { return u.ID != self })
	}
}

// SweepReactions evicts partial reactions from every cached message.
func (c *Client) SweepReactions() sweeper.SweepFunc {
	return func(time.Time) int {
		removed := 0
		for _, m := range c.Messages.Cache.Values() {
			removed += m.Reactions.Cache.Sweep((*Reaction).Partial)
		}
		return removed
	}
}

// RegisterSweepers registers one sweep per configured target.
func (c *Client) RegisterSweepers(sw *sweeper.Sweeper, cfgs []config.SweeperConfig) error {
	for _, sc := range cfgs {
		var fn sweeper.SweepFunc
		switch sc.Target {
		case config.SweepMessages:
			if sc.Lifetime.Duration() <= 0 {
				return fmt.Errorf("sweeper %s: lifetime must be positive", sc.Target)
			}
			fn = c.SweepMessages(sc.Lifetime.Duration())
		case config.SweepUsers:
			fn = c.SweepUsers()
		case config.SweepReactions:
			fn = c.SweepReactions()
		default:
			return fmt.Errorf("unknown sweeper target %q", sc.Target)
		}
		if err := sw.Register(sc.Target, sc.Cron, fn); err != nil {
			return err
		}
	}
	return nil
}

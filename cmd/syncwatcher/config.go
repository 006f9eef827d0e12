package main

import (
	"errors"
	"net/url"

	"github.com/dz0nda/quartz-tezos-contracts/tezos"
)

type Config struct {
	NodeURL         string
	SyncContract    string // empty to use the address recorded in the persistency file
	PersistencyFile string
	DBPath          string
	RescanFromLevel int64
	MetricsAddress  string // empty to disable the metrics endpoint
}

func (c *Config) Validate() (err error) {
	u, err := url.Parse(c.NodeURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("The node url has to be an http or https url")
	}
	if c.SyncContract != "" {
		addr, err := tezos.ParseAddress(c.SyncContract)
		if err != nil || !addr.IsContract() {
			return errors.New("The sync contract has to be a KT1 address")
		}
	}
	if c.DBPath == "" {
		return errors.New("An event database path is required")
	}
	if c.RescanFromLevel < 0 {
		return errors.New("The rescan level can not be negative")
	}
	return
}

//
// file.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// File holds the configurations of both parties.
type File struct {
	Sender   Sender
	Receiver Receiver
}

type party struct {
	ID           string `toml:"id"`
	InitialCount int    `toml:"initial_count"`
	Committed    bool   `toml:"committed"`
}

type file struct {
	Sender   *party `toml:"sender"`
	Receiver *party `toml:"receiver"`
}

// Load reads the configuration file path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses TOML configuration data. Both the [sender] and the
// [receiver] tables are required.
func Parse(data []byte) (*File, error) {
	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "config"), ErrConfig)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		var keys []string
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, errors.Wrapf(ErrConfig, "unknown keys: %s",
			strings.Join(keys, ", "))
	}
	if f.Sender == nil {
		return nil, errors.Wrap(ErrConfig, "missing [sender]")
	}
	if f.Receiver == nil {
		return nil, errors.Wrap(ErrConfig, "missing [receiver]")
	}

	sb := NewSenderBuilder().ID(f.Sender.ID).
		InitialCount(f.Sender.InitialCount)
	if f.Sender.Committed {
		sb.Committed()
	}
	sender, err := sb.Build()
	if err != nil {
		return nil, err
	}

	rb := NewReceiverBuilder().ID(f.Receiver.ID).
		InitialCount(f.Receiver.InitialCount)
	if f.Receiver.Committed {
		rb.Committed()
	}
	receiver, err := rb.Build()
	if err != nil {
		return nil, err
	}

	return &File{
		Sender:   sender,
		Receiver: receiver,
	}, nil
}

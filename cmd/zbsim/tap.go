// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.
package main

import (
	"fmt"
	"os"

	"github.com/vishvananda/netlink"
)

// tapDevice wraps the kernel TAP interface the bridge reads/writes raw
// APSDE ASDUs on: a TAP (Ethernet framing) device rather than a TUN (IP
// framing) device, since an ASDU is an arbitrary application payload
// rather than an IP packet.
type tapDevice struct {
	link *netlink.Tuntap
	fd   *os.File
}

// openTap brings up a Linux TAP device named name and returns a
// tapDevice wrapping its file descriptor for raw read/write.
func openTap(name string) (*tapDevice, error) {
	link := &netlink.Tuntap{
		LinkAttrs: netlink.LinkAttrs{Name: name},
		Mode:      netlink.TUNTAP_MODE_TAP,
		Flags:     netlink.TUNTAP_DEFAULTS | netlink.TUNTAP_NO_PI,
		Queues:    1,
	}
	if err := netlink.LinkAdd(link); err != nil {
		return nil, fmt.Errorf("add tap device %q: %w", name, err)
	}
	if err := netlink.LinkSetUp(link); err != nil {
		return nil, fmt.Errorf("up tap device %q: %w", name, err)
	}
	if len(link.Fds) == 0 {
		return nil, fmt.Errorf("tap device %q: no file descriptor returned", name)
	}
	return &tapDevice{link: link, fd: link.Fds[0]}, nil
}

func (t *tapDevice) Read(buf []byte) (int, error)  { return t.fd.Read(buf) }
func (t *tapDevice) Write(buf []byte) (int, error) { return t.fd.Write(buf) }
func (t *tapDevice) Close() error                  { return t.fd.Close() }

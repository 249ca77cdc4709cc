// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package apsme implements the APS sub-layer management entity: binding,
// attribute get/set, and group-table management. It acts entirely on
// the AIB; it never touches the radio.
package apsme

import (
	"errors"

	"zigbeecore/addr"
	"zigbeecore/aib"
)

// BindStatus is the result code carried on APSME-BIND.confirm /
// APSME-UNBIND.confirm.
type BindStatus uint8

const (
	BindSuccess BindStatus = iota
	BindIllegalRequest
	BindTableFull
	BindNotSupported // APSME-UNBIND.confirm: no matching entry
)

// ErrNotJoined signals a bind attempt before the device has joined a
// network; callers outside this package decide what "joined" means and
// pass it in rather than apsme reaching into nlme's state machine.
var ErrNotJoined = errors.New("apsme: device not joined")

// BindRequest is APSME-BIND.request.
type BindRequest struct {
	SrcAddress      addr.IeeeAddress
	SrcEndpoint     uint8
	ClusterID       uint16
	DstAddrMode     uint8
	DstAddress      addr.IeeeAddress
	DstGroupAddress addr.ShortAddress
	DstEndpoint     uint8
}

// BindConfirm is APSME-BIND.confirm.
type BindConfirm struct {
	Status BindStatus
}

// Bind performs APSME-BIND.request. Preconditions: the device must be
// joined (joined reports this; bindingSupported reports whether this
// device role supports a binding table at all) and the table must not
// be at capacity.
func Bind(a *aib.AIB, joined, bindingSupported bool, req BindRequest) (BindConfirm, error) {
	if !joined || !bindingSupported {
		return BindConfirm{Status: BindIllegalRequest}, nil
	}
	table, err := a.BindingTable()
	if err != nil {
		return BindConfirm{}, err
	}
	if len(table) >= aib.MaxBindings {
		return BindConfirm{Status: BindTableFull}, nil
	}
	table = append(table, aib.BindingEntry{
		SrcAddress:      req.SrcAddress,
		SrcEndpoint:     req.SrcEndpoint,
		ClusterId:       req.ClusterID,
		DstAddrMode:     req.DstAddrMode,
		DstAddress:      req.DstAddress,
		DstGroupAddress: req.DstGroupAddress,
		DstEndpoint:     req.DstEndpoint,
	})
	if err := a.SetBindingTable(table); err != nil {
		return BindConfirm{}, err
	}
	return BindConfirm{Status: BindSuccess}, nil
}

// UnbindRequest is APSME-UNBIND.request: removes the first binding table
// entry matching every field.
type UnbindRequest BindRequest

// Unbind performs APSME-UNBIND.request, returning BindNotSupported (no
// matching entry, reusing the confirm status space) when nothing
// matches.
func Unbind(a *aib.AIB, req UnbindRequest) (BindConfirm, error) {
	table, err := a.BindingTable()
	if err != nil {
		return BindConfirm{}, err
	}
	for i, entry := range table {
		if entry.SrcAddress == req.SrcAddress && entry.SrcEndpoint == req.SrcEndpoint &&
			entry.ClusterId == req.ClusterID && entry.DstAddrMode == req.DstAddrMode &&
			entry.DstAddress == req.DstAddress && entry.DstGroupAddress == req.DstGroupAddress &&
			entry.DstEndpoint == req.DstEndpoint {
			table = append(table[:i], table[i+1:]...)
			if err := a.SetBindingTable(table); err != nil {
				return BindConfirm{}, err
			}
			return BindConfirm{Status: BindSuccess}, nil
		}
	}
	return BindConfirm{Status: BindNotSupported}, nil
}

// LookupBindings returns every binding table entry matching
// (srcEndpoint, clusterID), per APSDE-DATA.request dst_addr_mode == None
// resolution.
func LookupBindings(a *aib.AIB, srcEndpoint uint8, clusterID uint16) ([]aib.BindingEntry, error) {
	table, err := a.BindingTable()
	if err != nil {
		return nil, err
	}
	var matches []aib.BindingEntry
	for _, entry := range table {
		if entry.SrcEndpoint == srcEndpoint && entry.ClusterId == clusterID {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

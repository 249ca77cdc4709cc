// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package apsde implements the APS data entity: binding
// resolution, optional encryption, and handoff to the NWK layer for
// transmission, plus indication of received application data.
package apsde

import (
	"context"

	"zigbeecore/addr"
	"zigbeecore/aib"
	"zigbeecore/aps"
	"zigbeecore/apsme"
	"zigbeecore/mlme"
	"zigbeecore/nib"
	"zigbeecore/nwk"
	"zigbeecore/security"
	"zigbeecore/wire"
)

// DstAddrMode selects how DataRequest.DstAddress/DstGroupAddress is
// interpreted.
type DstAddrMode uint8

const (
	DstAddrModeNone     DstAddrMode = 0
	DstAddrModeGroup    DstAddrMode = aib.DstAddrModeGroup
	DstAddrModeShort    DstAddrMode = 2
	DstAddrModeExtended DstAddrMode = aib.DstAddrModeExtended
)

// MaxAsduLength bounds the application payload this core will attempt to
// send unfragmented; exceeding it yields an AsduTooLong confirm status.
const MaxAsduLength = 256

// TxOptions selects per-request delivery behavior (ack_request
// and security bits, surfaced to the application as tx_options).
type TxOptions struct {
	Security   bool
	Ack        bool
	UseNwkKey  bool // not read by Request: a secured request is always encrypted under the APS link key
}

// DataRequest is APSDE-DATA.request.
type DataRequest struct {
	DstAddrMode  DstAddrMode
	DstAddress   addr.ShortAddress
	DstIeee      addr.IeeeAddress // meaningful when DstAddrMode == DstAddrModeExtended
	DstEndpoint  uint8
	ProfileID    uint16
	ClusterID    uint16
	SrcEndpoint  uint8
	Asdu         []byte
	TxOptions    TxOptions
	Radius       uint8
}

// DataStatus is the result code carried on APSDE-DATA.confirm.
type DataStatus uint8

const (
	DataSuccess DataStatus = iota
	DataNoShortAddress
	DataNoBoundDevice
	DataSecurityFail
	DataNoAck
	DataAsduTooLong
)

// DataConfirm is APSDE-DATA.confirm.
type DataConfirm struct {
	Status DataStatus
}

// DataIndication is APSDE-DATA.indication: a received application frame
// handed up to the higher layer.
type DataIndication struct {
	SrcAddress  addr.ShortAddress
	SrcEndpoint uint8
	DstEndpoint uint8
	ProfileID   uint16
	ClusterID   uint16
	Asdu        []byte
}

// resolveShortAddress looks up ieee's short address in the NIB's address
// map.
func resolveShortAddress(n *nib.NIB, ieee addr.IeeeAddress) (addr.ShortAddress, bool, error) {
	entries, err := n.AddressMap()
	if err != nil {
		return 0, false, err
	}
	for _, e := range entries {
		if e.IeeeAddr == ieee {
			return e.ShortAddr, true, nil
		}
	}
	return 0, false, nil
}

// Request performs APSDE-DATA.request: resolve the
// destination (via binding when dst_addr_mode is None), optionally
// encrypt, build the NWK data frame, and transmit it.
func Request(ctx context.Context, n *nib.NIB, a *aib.AIB, radio mlme.Mlme, req DataRequest) (DataConfirm, error) {
	if len(req.Asdu) > MaxAsduLength {
		return DataConfirm{Status: DataAsduTooLong}, nil
	}

	dstShort := req.DstAddress
	dstIeee := req.DstIeee
	haveIeee := req.DstAddrMode == DstAddrModeExtended
	group := req.DstAddrMode == DstAddrModeGroup

	if req.DstAddrMode == DstAddrModeNone {
		matches, err := apsme.LookupBindings(a, req.SrcEndpoint, req.ClusterID)
		if err != nil {
			return DataConfirm{}, err
		}
		if len(matches) == 0 {
			return DataConfirm{Status: DataNoBoundDevice}, nil
		}
		binding := matches[0]
		switch binding.DstAddrMode {
		case aib.DstAddrModeExtended:
			dstIeee = binding.DstAddress
			haveIeee = true
			short, ok, err := resolveShortAddress(n, dstIeee)
			if err != nil {
				return DataConfirm{}, err
			}
			if !ok {
				return DataConfirm{Status: DataNoShortAddress}, nil
			}
			dstShort = short
		case aib.DstAddrModeGroup:
			dstShort = binding.DstGroupAddress
			group = true
		}
	}

	deliveryMode := aps.DeliveryModeUnicast
	if group {
		deliveryMode = aps.DeliveryModeGroup
	}
	header := aps.Header{
		FrameControl:   aps.NewFrameControl(aps.FrameTypeData, deliveryMode, false, req.TxOptions.Security, req.TxOptions.Ack, false),
		SourceEndpoint: req.SrcEndpoint,
	}
	if group {
		ga := dstShort
		header.GroupAddress = &ga
	} else {
		ep := req.DstEndpoint
		header.DestEndpoint = &ep
	}
	cluster, profile := req.ClusterID, req.ProfileID
	header.ClusterID = &cluster
	header.ProfileID = &profile

	var payload []byte
	if req.TxOptions.Security {
		if !haveIeee {
			return DataConfirm{Status: DataSecurityFail}, nil
		}
		secured, err := security.EncryptAPSData(a, header, dstIeee, req.Asdu)
		if err != nil {
			return DataConfirm{Status: DataSecurityFail}, nil
		}
		payload = secured
	} else {
		w := wire.NewWriter(len(req.Asdu) + 16)
		header.Write(w)
		w.PutBytes(req.Asdu)
		payload = w.Bytes()
	}

	nwkHeader := nwk.Header{
		FrameControl: nwk.NewFrameControl(nwk.FrameTypeData, 2, nwk.DiscoverRouteSuppress, false, false, false, false, false, false),
		Destination:  dstShort,
		Radius:       req.Radius,
	}
	src, err := n.NetworkAddress()
	if err != nil {
		return DataConfirm{}, err
	}
	nwkHeader.Source = src
	seq, err := n.NextSequenceNumber()
	if err != nil {
		return DataConfirm{}, err
	}
	nwkHeader.SequenceNumber = seq

	w := wire.NewWriter(len(payload) + 32)
	nwkHeader.Write(w)
	w.PutBytes(payload)

	if err := radio.Transmit(ctx, w.Bytes()); err != nil {
		return DataConfirm{Status: DataNoAck}, nil
	}
	return DataConfirm{Status: DataSuccess}, nil
}

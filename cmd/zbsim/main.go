// Copyright 2024 the zigbeecore authors. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// zbsim is the example driver for the zigbeecore stack: load a JSON
// config, bring up the stack, run it, report what happened. It drives an
// mlme.Simulated radio so the whole NLME/APS pipeline runs without real
// 802.15.4 hardware.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"zigbeecore/addr"
	"zigbeecore/aib"
	"zigbeecore/apsde"
	"zigbeecore/ib"
	"zigbeecore/mlme"
	"zigbeecore/nib"
	"zigbeecore/nlme"
	"zigbeecore/nwk"
	"zigbeecore/security"
)

// ibCapacity is a generous upper bound on either IB's flat footprint;
// ib.NewTable panics if it is too small, never if it is too large.
const ibCapacity = 4096

func main() {
	configFile := flag.String("config", "zbsim.json", "path to the zbsim JSON config")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("zbsim: %v", err)
	}
	if cfg.DebugLevel > 0 {
		log.Printf("zbsim: loaded config from %s", *configFile)
	}

	n := nib.New(ib.NewMemStorage(ibCapacity))
	if err := n.Init(); err != nil {
		log.Fatalf("zbsim: nib init: %v", err)
	}
	a := aib.New(ib.NewMemStorage(ibCapacity))
	if err := a.Init(); err != nil {
		log.Fatalf("zbsim: aib init: %v", err)
	}

	if err := applyConfig(n, cfg); err != nil {
		log.Fatalf("zbsim: %v", err)
	}

	radio := mlme.NewSimulated()
	sm := nlme.NewStateMachine()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	channels := cfg.Channels
	if len(channels) == 0 {
		channels = []uint8{11}
	}
	duration := cfg.ScanDuration
	if duration == 0 {
		duration = 4
	}

	confirm, err := nlme.NetworkDiscovery(ctx, sm, radio, channels, duration)
	if err != nil {
		log.Fatalf("zbsim: network discovery: %v", err)
	}
	log.Printf("zbsim: discovery status=%d networks=%d", confirm.Status, len(confirm.Networks))
	for _, nw := range confirm.Networks {
		log.Printf("zbsim:   pan=%s extpan=%s channel=%d permit_joining=%v",
			nw.PanID, nw.ExtendedPanID, nw.LogicalChannel, nw.PermitJoining)
	}

	if cfg.TapDevice == "" {
		return
	}

	tap, err := openTap(cfg.TapDevice)
	if err != nil {
		log.Fatalf("zbsim: tap: %v", err)
	}
	defer tap.Close()
	log.Printf("zbsim: bridging APSDE data onto tap device %q", cfg.TapDevice)

	runBridge(ctx, n, a, radio, tap)
}

// applyConfig writes the device identity and network key the config
// names into the NIB, seeding device state directly from the parsed
// JSON before the stack starts.
func applyConfig(n *nib.NIB, cfg *Config) error {
	if cfg.IeeeAddress != "" {
		raw, err := parseHexU64(cfg.IeeeAddress)
		if err != nil {
			return err
		}
		if err := n.SetIeeeAddress(addr.IeeeAddress(raw)); err != nil {
			return err
		}
	}
	if cfg.ExtendedPanID != "" {
		raw, err := parseHexU64(cfg.ExtendedPanID)
		if err != nil {
			return err
		}
		if err := n.SetExtendedPanId(addr.ExtendedPanId(raw)); err != nil {
			return err
		}
	}
	if cfg.NetworkKey != "" {
		key, err := parseHexKey(cfg.NetworkKey)
		if err != nil {
			return err
		}
		material, _, err := n.ActiveSecurityMaterial()
		if err != nil {
			return err
		}
		material.Key = key
		return n.UpdateSecurityMaterial(material)
	}
	return nil
}

// runBridge is a decap/encap pair over APSDE: one goroutine forwards
// every APSDE-DATA.indication's ASDU onto the tap device, the other
// reads frames off the tap device and issues them as APSDE-DATA.requests
// to the broadcast short address on a fixed test endpoint/cluster
// (endpoint 1, cluster 0x0000).
func runBridge(ctx context.Context, n *nib.NIB, a *aib.AIB, radio mlme.Mlme, tap *tapDevice) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			frame, err := radio.Receive(ctx)
			if err != nil {
				return
			}
			header, payload, err := decodeNwkData(n, frame.Payload)
			if err != nil {
				continue
			}
			srcIeee, ok, err := resolveIeee(n, header.Source)
			if err != nil || !ok {
				continue
			}
			ind, err := apsde.Indicate(a, header.Source, srcIeee, payload)
			if err != nil {
				continue
			}
			if _, err := tap.Write(ind.Asdu); err != nil {
				log.Printf("zbsim: tap write: %v", err)
			}
		}
	}()

	buf := make([]byte, 2048)
	for {
		nr, err := tap.Read(buf)
		if err != nil {
			break
		}
		req := apsde.DataRequest{
			DstAddrMode: apsde.DstAddrModeShort,
			DstAddress:  addr.ShortAddressBroadcastRouters,
			DstEndpoint: 1,
			ProfileID:   0x0104,
			ClusterID:   0x0000,
			SrcEndpoint: 1,
			Asdu:        append([]byte{}, buf[:nr]...),
			Radius:      30,
		}
		if _, err := apsde.Request(ctx, n, a, radio, req); err != nil {
			log.Printf("zbsim: apsde request: %v", err)
		}
	}
	<-done
}

// decodeNwkData decrypts frame (if secured) and returns its header and
// the APS-layer payload, rejecting anything but a Data frame: the tap
// bridge only forwards application ASDUs, never NWK command traffic.
func decodeNwkData(n *nib.NIB, frame []byte) (nwk.Header, []byte, error) {
	header, payload, err := security.DecryptNWK(n, frame)
	if err != nil && err != security.ErrUnsecuredFrame {
		return header, nil, err
	}
	if header.FrameControl.FrameType() != nwk.FrameTypeData {
		return header, nil, fmt.Errorf("zbsim: not a data frame")
	}
	return header, payload, nil
}

// resolveIeee looks up src's IEEE address in the NIB address map.
func resolveIeee(n *nib.NIB, src addr.ShortAddress) (addr.IeeeAddress, bool, error) {
	entries, err := n.AddressMap()
	if err != nil {
		return 0, false, err
	}
	for _, e := range entries {
		if e.ShortAddr == src {
			return e.IeeeAddr, true, nil
		}
	}
	return 0, false, nil
}

package apsme

import (
	"zigbeecore/addr"
	"zigbeecore/aib"
	"zigbeecore/aps"
	"zigbeecore/nib"
	"zigbeecore/security"
	"zigbeecore/wire"
)

// TransportKeyStatus is the result code for TransportKey installation.
type TransportKeyStatus uint8

const (
	TransportKeySuccess TransportKeyStatus = iota
	TransportKeySecurityFail
	TransportKeyInvalidSource
)

// TransportKeyIndication is emitted to the higher layer once a
// TransportKey command has been decrypted and installed.
type TransportKeyIndication struct {
	Status  TransportKeyStatus
	KeyType aps.TransportKeyType
}

// InstallTransportKey decrypts a received TransportKey frame under the
// key-transport/key-load key derived from source's current link key,
// validates the source, and installs the carried key: a
// StandardNetworkKey goes into the NIB's security material set; an
// ApplicationLinkKey or TrustCenterLinkKey goes into the AIB's device
// key pair set (key selection table, 4.7).
func InstallTransportKey(n *nib.NIB, a *aib.AIB, source addr.IeeeAddress, frame []byte) (TransportKeyIndication, error) {
	keyID := security.KeyIdentifierKeyTransport
	r := wire.NewReader(frame)
	if _, err := aps.ReadHeader(r); err == nil {
		if aux, err := security.ReadAuxHeader(r); err == nil && aux.Control.KeyIdentifier() == security.KeyIdentifierKeyLoad {
			keyID = security.KeyIdentifierKeyLoad
		}
	}
	_, body, err := security.DecryptAPSTransportKey(a, source, keyID, frame)
	if err != nil {
		return TransportKeyIndication{Status: TransportKeySecurityFail}, nil
	}

	cmd, err := aps.ParseCommand(wire.NewReader(body))
	if err != nil {
		return TransportKeyIndication{Status: TransportKeySecurityFail}, err
	}
	tk, ok := cmd.(aps.TransportKey)
	if !ok {
		return TransportKeyIndication{Status: TransportKeySecurityFail}, nil
	}

	switch tk.KeyType {
	case aps.KeyTypeStandardNetworkKey:
		if tk.SourceAddress != source {
			return TransportKeyIndication{Status: TransportKeyInvalidSource}, nil
		}
		entry := nib.SecurityMaterialEntry{SeqNo: tk.SeqNo, Key: tk.Key}
		if err := n.UpdateSecurityMaterial(entry); err != nil {
			return TransportKeyIndication{}, err
		}
		if err := n.SetActiveKeySeqNumber(tk.SeqNo); err != nil {
			return TransportKeyIndication{}, err
		}
	case aps.KeyTypeApplicationLinkKey, aps.KeyTypeTrustCenterLinkKey:
		dk := aib.DeviceKeyPairEntry{
			DeviceIeee:   tk.DestAddress,
			KeyAttribute: aib.KeyAttributeUnverified,
			LinkKey:      tk.Key,
			LinkKeyType:  aib.LinkKeyTypeGlobal,
		}
		if tk.KeyType == aps.KeyTypeApplicationLinkKey {
			dk.LinkKeyType = aib.LinkKeyTypeUnique
		}
		if err := a.UpsertDeviceKeyPair(dk); err != nil {
			return TransportKeyIndication{}, err
		}
	}

	return TransportKeyIndication{Status: TransportKeySuccess, KeyType: tk.KeyType}, nil
}

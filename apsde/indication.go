package apsde

import (
	"zigbeecore/addr"
	"zigbeecore/aib"
	"zigbeecore/aps"
	"zigbeecore/security"
	"zigbeecore/wire"
)

// Indicate parses one NWK-delivered APS data payload into
// APSDE-DATA.indication, decrypting it first if its security bit is set
//. src is the short address the NWK layer delivered the frame
// from, already resolved to srcIeee by the caller (NLME owns address-map
// lookups; apsde only decrypts and dispatches).
func Indicate(a *aib.AIB, src addr.ShortAddress, srcIeee addr.IeeeAddress, payload []byte) (DataIndication, error) {
	r := wire.NewReader(payload)
	header, err := aps.ReadHeader(r)
	if err != nil {
		return DataIndication{}, err
	}

	var body []byte
	if header.FrameControl.Security() {
		header, body, err = security.DecryptAPSData(a, srcIeee, payload)
		if err != nil {
			return DataIndication{}, err
		}
	} else {
		body = payload[r.Offset():]
	}

	ind := DataIndication{SrcAddress: src, SrcEndpoint: header.SourceEndpoint, Asdu: body}
	if header.DestEndpoint != nil {
		ind.DstEndpoint = *header.DestEndpoint
	}
	if header.ClusterID != nil {
		ind.ClusterID = *header.ClusterID
	}
	if header.ProfileID != nil {
		ind.ProfileID = *header.ProfileID
	}
	return ind, nil
}

package apsme

import "zigbeecore/aib"

// AttrStatus is the result code carried on APSME-GET.confirm /
// APSME-SET.confirm: attribute ids translate to AIB reads/writes, and
// an unknown id returns UnsupportedAttribute.
type AttrStatus uint8

const (
	AttrSuccess AttrStatus = iota
	AttrUnsupportedAttribute
	AttrReadOnly
)

// readOnlyAttrs lists AIB attributes this core refuses to SET directly:
// they are owned by join/key-install logic, not the application.
var readOnlyAttrs = map[int]bool{
	aib.AttrTrustCenterAddress: true,
	aib.AttrDeviceKeyPairSet:   true,
}

// GetConfirm is APSME-GET.confirm.
type GetConfirm struct {
	Status AttrStatus
	Value  []byte
}

// Get performs APSME-GET.request for attribute id.
func Get(a *aib.AIB, id int) GetConfirm {
	raw, err := a.Table().GetRaw(id)
	if err != nil {
		return GetConfirm{Status: AttrUnsupportedAttribute}
	}
	return GetConfirm{Status: AttrSuccess, Value: raw}
}

// SetConfirm is APSME-SET.confirm.
type SetConfirm struct {
	Status AttrStatus
}

// Set performs APSME-SET.request for attribute id, refusing ids this
// core treats as read-only from the application's perspective.
func Set(a *aib.AIB, id int, value []byte) SetConfirm {
	if readOnlyAttrs[id] {
		return SetConfirm{Status: AttrReadOnly}
	}
	if err := a.Table().SetRaw(id, value); err != nil {
		return SetConfirm{Status: AttrUnsupportedAttribute}
	}
	return SetConfirm{Status: AttrSuccess}
}

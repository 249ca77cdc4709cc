package apsme

import (
	"zigbeecore/addr"
	"zigbeecore/aib"
)

// GroupStatus is the result code for the group-table operations.
// Supplemental: the specification exposes group_table only as an AIB attribute;
// these first-class request/confirm primitives follow the original
// system's groupmgt.rs, which treats group add/remove the same way as
// binding rather than as raw attribute storage.
type GroupStatus uint8

const (
	GroupSuccess GroupStatus = iota
	GroupTableFull
	GroupDuplicateEntry
	GroupNotFound
)

// GroupConfirm is the confirm for AddGroupRequest/RemoveGroupRequest/
// RemoveAllGroupsRequest.
type GroupConfirm struct {
	Status GroupStatus
}

// AddGroupRequest adds endpoint to groupAddress's membership, rejecting
// a duplicate entry or a full table (TableFull precedent,
// applied here to the group table).
func AddGroupRequest(a *aib.AIB, endpoint uint8, groupAddress addr.ShortAddress) (GroupConfirm, error) {
	table, err := a.GroupTable()
	if err != nil {
		return GroupConfirm{}, err
	}
	for _, entry := range table {
		if entry.Endpoint == endpoint && entry.GroupAddress == groupAddress {
			return GroupConfirm{Status: GroupDuplicateEntry}, nil
		}
	}
	if len(table) >= aib.MaxGroups {
		return GroupConfirm{Status: GroupTableFull}, nil
	}
	table = append(table, aib.GroupEntry{GroupAddress: groupAddress, Endpoint: endpoint})
	if err := a.SetGroupTable(table); err != nil {
		return GroupConfirm{}, err
	}
	return GroupConfirm{Status: GroupSuccess}, nil
}

// RemoveGroupRequest removes endpoint's membership in groupAddress.
func RemoveGroupRequest(a *aib.AIB, endpoint uint8, groupAddress addr.ShortAddress) (GroupConfirm, error) {
	table, err := a.GroupTable()
	if err != nil {
		return GroupConfirm{}, err
	}
	for i, entry := range table {
		if entry.Endpoint == endpoint && entry.GroupAddress == groupAddress {
			table = append(table[:i], table[i+1:]...)
			if err := a.SetGroupTable(table); err != nil {
				return GroupConfirm{}, err
			}
			return GroupConfirm{Status: GroupSuccess}, nil
		}
	}
	return GroupConfirm{Status: GroupNotFound}, nil
}

// RemoveAllGroupsRequest clears every group membership belonging to
// endpoint.
func RemoveAllGroupsRequest(a *aib.AIB, endpoint uint8) (GroupConfirm, error) {
	table, err := a.GroupTable()
	if err != nil {
		return GroupConfirm{}, err
	}
	kept := table[:0]
	for _, entry := range table {
		if entry.Endpoint != endpoint {
			kept = append(kept, entry)
		}
	}
	if err := a.SetGroupTable(kept); err != nil {
		return GroupConfirm{}, err
	}
	return GroupConfirm{Status: GroupSuccess}, nil
}

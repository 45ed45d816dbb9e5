package service

import (
	"strconv"

	"github.com/smallbiznis/chargeview/internal/billing"
)

// nullField makes an optional value comparable while keeping NULL
// distinct from the zero value.
type nullField struct {
	set   bool
	value string
}

func nullString(v *string) nullField {
	if v == nil {
		return nullField{}
	}
	return nullField{set: true, value: *v}
}

func nullInt(v *int64) nullField {
	if v == nil {
		return nullField{}
	}
	return nullField{set: true, value: strconv.FormatInt(*v, 10)}
}

func nullDecimal(v *billing.Decimal) nullField {
	if v == nil {
		return nullField{}
	}
	return nullField{set: true, value: v.String()}
}

type contractKey struct {
	orderID, name, biller              nullField
	allocated                          nullField
	openstackProjectID, fileSystemName nullField
	unitPrice                          nullField
	managerUsername, managerEmail      nullField
	managerTitle, managerUnit, manager nullField
}

func keyOf(r contractRecord) contractKey {
	return contractKey{
		orderID:            nullString(r.OrderID),
		name:               nullString(r.Name),
		biller:             nullString(r.Biller),
		allocated:          nullInt(r.Allocated),
		openstackProjectID: nullString(r.OpenstackProjectID),
		fileSystemName:     nullString(r.FileSystemName),
		unitPrice:          nullDecimal(r.UnitPrice),
		managerUsername:    nullString(r.ManagerUsername),
		managerEmail:       nullString(r.ManagerEmail),
		managerTitle:       nullString(r.ManagerTitle),
		managerUnit:        nullString(r.ManagerUnit),
		manager:            nullString(r.Manager),
	}
}

// dedupeContracts drops records that duplicate an earlier one field for
// field. The CRM hands back the same contract more than once when an
// order spans billing periods.
func dedupeContracts(records []contractRecord) []contractRecord {
	seen := make(map[contractKey]struct{}, len(records))
	out := make([]contractRecord, 0, len(records))
	for _, record := range records {
		key := keyOf(record)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, record)
	}
	return out
}

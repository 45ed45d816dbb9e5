package billing

// Feed scale divisors. Byte-granular feeds divide by a binary GiB, the
// HNAS feeds report megabytes.
const (
	BytesPerGB     int64 = 1073741824
	MBPerGB        int64 = 1000
	secondsPerHour int64 = 3600
)

var one = NewDecimalFromInt64(1)

// SecondsToHours converts CPU seconds to exact decimal hours.
func SecondsToHours(seconds int64) Decimal {
	return NewDecimalFromInt64(seconds).Div(NewDecimalFromInt64(secondsPerHour))
}

// ToGB divides a raw usage quantity by the feed's GB divisor.
func ToGB(units Decimal, divisor int64) Decimal {
	return units.Div(NewDecimalFromInt64(divisor))
}

// BlocksFor quantizes usage into whole billing blocks via ceiling
// division. Usage below one GB bills zero blocks.
func BlocksFor(usageGB Decimal, blockSizeGB int64) int64 {
	if usageGB.Cmp(one) < 0 {
		return 0
	}
	quotient := usageGB.Div(NewDecimalFromInt64(blockSizeGB))
	var ceiled Decimal
	_, _ = decimalContext.Ceil(&ceiled.value, &quotient.value)
	blocks, err := ceiled.value.Int64()
	if err != nil {
		return 0
	}
	return blocks
}

// Cost multiplies a block or unit count by its unit price.
func Cost(quantity Decimal, unitPrice Decimal) Decimal {
	return quantity.Mul(unitPrice)
}

package order

import "github.com/shopspring/decimal"

// Totals computes the header money fields from the current line set and fee
// inputs: subtotal = sum(quantity * unit price), total = subtotal + fee + tax
// - discount. Pure; results are rounded to 2 decimal places.
func Totals(lines []Line, deliveryFee, tax, discount decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(lineSubtotal(l.Quantity, l.UnitPrice))
	}
	subtotal = subtotal.Round(2)
	total = subtotal.Add(deliveryFee).Add(tax).Sub(discount).Round(2)
	return subtotal, total
}

func lineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

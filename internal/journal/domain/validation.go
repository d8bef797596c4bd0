package domain

import "github.com/shopspring/decimal"

// ValidateLines checks the shape of caller-supplied lines: at least one line,
// no negative amounts, and exactly one positive side per line.
func ValidateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return ErrEmptyLines
	}
	for _, line := range lines {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return ErrNegativeAmount
		}
		debitSet := line.Debit.IsPositive()
		creditSet := line.Credit.IsPositive()
		if debitSet && creditSet {
			return ErrBothSidesSet
		}
		if !debitSet && !creditSet {
			return ErrZeroAmountLine
		}
	}
	return nil
}

// ValidateBalanced enforces the entry balance law: exact decimal equality of
// debit and credit totals, no tolerance. Rounding is the caller's problem.
func ValidateBalanced(lines []LineInput) error {
	if err := ValidateLines(lines); err != nil {
		return err
	}

	debitTotal := decimal.Zero
	creditTotal := decimal.Zero
	for _, line := range lines {
		debitTotal = debitTotal.Add(line.Debit)
		creditTotal = creditTotal.Add(line.Credit)
	}
	if !debitTotal.Equal(creditTotal) {
		return ErrUnbalanced
	}
	return nil
}

// LineInputsOf converts persisted lines back into validation inputs.
func LineInputsOf(lines []JournalLine) []LineInput {
	inputs := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, LineInput{
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Memo:      line.Memo,
		})
	}
	return inputs
}

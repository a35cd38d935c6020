package model

import (
	"database/sql/driver"
	"fmt"
)

// Value implements driver.Valuer.
func (ms KeyMarks) Value() (driver.Value, error) {
	return ms.String(), nil
}

// Scan implements sql.Scanner.
func (ms *KeyMarks) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return err
	}
	marks, err := ParseKeyMarks(s)
	if err != nil {
		return err
	}
	*ms = marks
	return nil
}

// Value implements driver.Valuer.
func (as Answers) Value() (driver.Value, error) {
	return as.String(), nil
}

// Scan implements sql.Scanner.
func (as *Answers) Scan(src any) error {
	s, err := scanText(src)
	if err != nil {
		return err
	}
	*as = ParseAnswers(s)
	return nil
}

func scanText(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("cannot scan %T into marks", src)
	}
}

package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	codeCharacters     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	customerCodePrefix = "CL-"
)

// GenerateCustomerCode builds a code for clients created without one.
func GenerateCustomerCode() (string, error) {
	code, err := gonanoid.Generate(codeCharacters, 8)
	if err != nil {
		return "", err
	}
	return customerCodePrefix + code, nil
}

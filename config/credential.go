// Copyright (c) Microsoft. All rights reserved.

package config

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Credential returns the default Azure credential chain: environment,
// workload identity, managed identity, Azure CLI and Azure Developer CLI.
func Credential() (*azidentity.DefaultAzureCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	return cred, nil
}

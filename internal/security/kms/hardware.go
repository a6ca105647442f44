package kms

import (
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/shirou/gopsutil/v3/host"
)

// workstationFingerprint binds a key to the physical machine running
// the exam rather than to its network identity. The integrity
// package's own VM sweep treats a NIC's MAC OUI prefix as evidence of
// virtualization, precisely because it is trivial to reassign on a
// virtual NIC; using it here would let a key meant to be pinned to one
// exam workstation follow a cloned VM instead. CPU topology is fixed
// by the hypervisor's vCPU allocation for the life of the guest and
// does not move with a cloned network identity.
func workstationFingerprint() (string, error) {
	hostInfo, err := host.Info()
	if err != nil {
		return "", fmt.Errorf("kms: host info: %w", err)
	}
	machineID := strings.TrimSpace(hostInfo.HostID)
	if machineID == "" {
		return "", fmt.Errorf("kms: machine-id is empty")
	}

	brand := strings.TrimSpace(cpuid.CPU.BrandName)
	if brand == "" {
		brand = "unknown-cpu"
	}

	return fmt.Sprintf("%s|%s|%dc", machineID, brand, cpuid.CPU.PhysicalCores), nil
}

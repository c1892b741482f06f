package sync

import (
	"testing"

	"wardwatch/testutil"
)

func TestSyncStaysBehindServiceBoundary(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.DriverImportForbidden,
		"sync reconciles through the core service, never database drivers")
	testutil.AssertNoDirectImports(t, ".", testutil.ObjectSDKImportForbidden,
		"sync reconciles through the core service, never object-storage SDKs")
}

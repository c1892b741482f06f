package httpapi

import (
	"testing"

	"wardwatch/testutil"
)

func TestHandlerStaysBehindServiceBoundary(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.DriverImportForbidden,
		"handlers go through the core service, never database drivers")
	testutil.AssertNoDirectImports(t, ".", testutil.ObjectSDKImportForbidden,
		"handlers go through the core service, never object-storage SDKs")
}

package wfstests

import (
	"github.com/ogccite/wfs-contract-tests/framework"
)

func RunTestSuite(
	harness *framework.TestHarness,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, harness)

		t.Run("service metadata", DoServiceMetadataTests)
		t.Run("feature type descriptions", DoDescribeFeatureTypeTests)
		t.Run("simple queries", DoGetFeatureTests)
		t.Run("resource identifiers", DoResourceIDTests)
		t.Run("stored queries", DoStoredQueryTests)
	})
}

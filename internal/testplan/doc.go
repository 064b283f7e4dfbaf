// Package testplan models feditest test plans.
//
// A TestPlan is an ordered list of Sessions. Each Session names a
// Constellation, which binds role names to NodeDrivers and their
// parameters, and the ordered TestSpecs to run against it. A TestSpec
// refers to a registered test by name, may rename the test's roles onto
// constellation roles, and may carry a skip reason.
//
// Plans are persisted as JSON (or YAML) documents:
//
//	{
//	    "type": "feditest-testplan",
//	    "feditest_version": "0.6",
//	    "name": "webfinger against example.com",
//	    "sessions": [{
//	        "constellation": {
//	            "roles": {
//	                "client": {"nodedriver": "ImpInProcessNodeDriver"},
//	                "server": {"nodedriver": "SaasWebFingerServerNodeDriver",
//	                           "parameters": {"hostname": "example.com"}}
//	            }
//	        },
//	        "tests": [{"name": "webfinger::validJSON"}]
//	    }]
//	}
//
// A role bound to null is unbound; a session whose constellation has an
// unbound role is a template and cannot be executed until it is
// instantiated with a concrete constellation.
//
// The package does not know about the test and driver registries. Its
// validation takes a TestLookup and a DriverLookup instead, so callers can
// validate against any registry instance.
package testplan

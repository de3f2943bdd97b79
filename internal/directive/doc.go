// Package directive routes voice-assistant directives to handlers and folds
// backend results into a single protocol response.
//
// A directive arrives as {directive:{header, endpoint, payload}}. The endpoint
// cookie carries a serialised property map that binds protocol interfaces and
// properties (e.g. Alexa.PowerController / powerState) to backend items.
//
// Processing a directive:
//
//	Dispatcher.Execute
//	    -> Handler method (resolved by name, optional alias table)
//	        -> Exchange.PostItemsAndReturn        (concurrent item commands)
//	        -> Exchange.GetPropertiesResponseAndReturn
//	            -> Exchange.GetItemState          (concurrent item reads)
//	                -> FormatItemState
//
// Every directive produces exactly one response on the ResponseSink, either a
// success (optionally carrying context properties) or an Alexa.ErrorResponse.
// Backend "not found" maps to NO_SUCH_ENDPOINT; every other failure, including
// NULL item states and unconvertible property values, maps to the generic
// ENDPOINT_UNREACHABLE error and is logged for operators.
//
// Fan-out uses an errgroup without a derived context. All members run to
// completion and the first error in input order decides the outcome.
//
// The property map is owned by a single Exchange and is only enriched (item
// states attached to capabilities) after all reads of a fan-out have settled.
package directive

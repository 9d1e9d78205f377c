// Package showfile loads declarative show definitions from YAML files
// and compiles them into runnable shows.
//
// A definition file describes a show's timeline without any code:
//
//	name: sunset-spectacular
//	duration: 180
//	description: "Nightly closing show"
//	metadata:
//	  venue: main-stage
//	events:
//	  - at: 0
//	    description: "house lights down"
//	    commands:
//	      - fixture_id: house-lights
//	        action: fade
//	        parameters: {level: 0, seconds: 5}
//	  - at: 10.5
//	    description: "open pyro salvo"
//	    async: true
//	    commands:
//	      - fixture_id: pyro-rack-1
//	        action: fire
//	      - fixture_id: pyro-rack-2
//	        action: fire
//
// Offsets are seconds from show start. An event with multiple commands
// becomes a batch; async events dispatch without occupying a worker slot.
//
// Compilation turns each command entry into an MQTT publish against the
// fixture's command topic, so the same Publisher wiring drives every
// declarative show.
//
// # Thread Safety
//
//   - Load and Compile are pure functions over their inputs; the
//     resulting Show carries its own synchronisation.
package showfile

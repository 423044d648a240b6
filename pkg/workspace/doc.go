// Package workspace keeps local production projects: a raw script, the scenes
// structured from it, and the media produced per scene (base and edited
// images, video, voiceover takes).
//
// Projects are msgpack records in a kv.Store under Key{"project", id}.
package workspace

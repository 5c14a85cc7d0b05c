// Package guess implements the rules of the averages game.
//
// Each player picks a whole number from 0 to 100. Once everyone in the
// round has picked, the target is the average of the picks multiplied by
// the room's factor. Every player loses a tenth of their distance from the
// target, starting from 10 points and never dropping below zero. The
// closest player wins the round. After all players confirm the results the
// next round starts, until the configured number of rounds has been played.
//
// How to play
// - The host creates a room, choosing the number of rounds and the factor
// - Everyone else joins with the 5-character room code
// - The host starts the game once at least two players are in
// - Players who join mid-game sit out until the next round begins
// - If the host leaves, the room is closed for everyone
package guess

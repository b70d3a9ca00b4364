/*
Package dispatcher provides EventDispatcher, a facade over two observers: one for committed domain events
and one for notifies (externally observable outcomes such as outbound messages).
Every publish forwards a private shallow copy of the dispatcher's context data to the handlers.
*/
package dispatcher

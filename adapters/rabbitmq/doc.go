/*
Package rabbitmq provides a RabbitMQ transport for relayed notifies.
It maps publish operations to AMQP and includes an auto-reconnect publisher
that declares the notify topic exchange on every (re)connect.
*/
package rabbitmq

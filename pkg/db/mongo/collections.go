package mongo

const (
	CollectionAppointments  = "appointments"
	CollectionNotifications = "notifications"
	CollectionMessages      = "messages"
	CollectionSettings      = "app_settings"
	CollectionEmployees     = "employees"
	CollectionHostLocks     = "host_locks"
)

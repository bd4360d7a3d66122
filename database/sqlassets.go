package sqlassets

import _ "embed"

//go:embed schema/platform/tenants.sql
var TenantsSQL string

//go:embed schema/tenant_space/customers.sql
var CustomersSQL string

//go:embed schema/tenant_space/appointments.sql
var AppointmentsSQL string

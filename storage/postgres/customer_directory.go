package postgres

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/librisys/loanservice/core"
	"github.com/librisys/loanservice/storage"
)

// CustomerDirectory resolves customer ids to contact records. It is
// read-only; customer lifecycle is owned by the identity service.
type CustomerDirectory struct {
	repoBase
}

// NewCustomerDirectory creates a new CustomerDirectory.
func NewCustomerDirectory(logger Logger) *CustomerDirectory {
	return &CustomerDirectory{repoBase: repoBase{logger: logger, table: customersTable}}
}

// GetContact fetches the contact record for a customer. The second return
// value is false when the customer is unknown.
func (d *CustomerDirectory) GetContact(ctx context.Context, q storage.Querier, id core.CustomerID) (core.Customer, bool, error) {
	selectStmt := dialect.From(customersTable).
		Select(colID, colFirstName, colLastName, colEmail).
		Where(goqu.Ex{colID: id.String()})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		d.logger.Error(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error(), logAttrTable, customersTable)
		return core.Customer{}, false, buildErr(toSQLErr)
	}

	rows, queryErr := q.Query(ctx, sqlQuery)
	if queryErr != nil {
		d.logger.Error(logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return core.Customer{}, false, storageErr(queryErr)
	}
	defer d.closeRows(rows)

	if !rows.Next() {
		return core.Customer{}, false, nil
	}

	var customer core.Customer
	var customerID string

	scanErr := rows.Scan(&customerID, &customer.FirstName, &customer.LastName, &customer.Email)
	if scanErr != nil {
		d.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error(), logAttrTable, customersTable)
		return core.Customer{}, false, storageErr(scanErr)
	}

	parsed, parseErr := core.ParseCustomerID(customerID)
	if parseErr != nil {
		d.logger.Error(logMsgScanRowFailed, logAttrError, parseErr.Error(), logAttrTable, customersTable)
		return core.Customer{}, false, storageErr(parseErr)
	}

	customer.ID = parsed

	return customer, true, nil
}
